package feeds

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
  xmlns:dc="http://purl.org/dc/elements/1.1/"
  xmlns:content="http://purl.org/rss/1.0/modules/content/"
  xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Example Tech</title>
    <link>https://www.example.com</link>
    <description>Test channel</description>
    <item>
      <title>  Thumbnail wins  </title>
      <link>https://www.example.com/posts/1</link>
      <guid isPermaLink="false">post-1</guid>
      <description><![CDATA[<p>Hello <img src="https://cdn.example.com/sniffed.png"/></p>]]></description>
      <author>alice@example.com (Alice)</author>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
      <category> Go </category>
      <category></category>
      <category>Feeds</category>
      <media:thumbnail url="https://cdn.example.com/thumb.jpg"/>
    </item>
    <item>
      <title>Dublin Core fallbacks</title>
      <link>https://www.example.com/posts/2</link>
      <content:encoded><![CDATA[<div>Body <img alt="x" src='https://cdn.example.com/encoded.jpg'></div>]]></content:encoded>
      <dc:creator>Bob</dc:creator>
      <dc:date>2024-02-01T08:30:00Z</dc:date>
    </item>
    <item>
      <description>No title, no link</description>
      <enclosure url="https://cdn.example.com/audio.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Enclosure image</title>
      <link>https://www.example.com/posts/4</link>
      <enclosure url="https://cdn.example.com/enclosure.png" type="image/png" length="1"/>
      <pubDate>definitely not a date</pubDate>
    </item>
    <item>
      <title>Media content</title>
      <link>https://www.example.com/posts/5</link>
      <media:content url="https://cdn.example.com/clip.mp4" medium="video"/>
      <media:content url="https://cdn.example.com/still.jpg" medium="image"/>
      <media:thumbnail url="https://cdn.example.com/thumb5.jpg"/>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Example</title>
  <id>urn:feed:1</id>
  <updated>2024-03-01T00:00:00Z</updated>
  <entry>
    <title>Alternate link</title>
    <id>urn:entry:1</id>
    <link rel="self" href="https://atom.example.org/self/1"/>
    <link rel="alternate" href="https://atom.example.org/entries/1"/>
    <link rel="enclosure" type="image/jpeg" href="https://atom.example.org/img/1.jpg"/>
    <published>2024-03-01T12:00:00Z</published>
    <updated>2024-03-02T12:00:00Z</updated>
    <author><name>Carol</name></author>
    <category term="go"/>
    <category term=""/>
    <category term="atom"/>
    <content type="html">&lt;p&gt;Full &lt;img src="https://atom.example.org/inline.png"&gt;&lt;/p&gt;</content>
    <summary>Short</summary>
  </entry>
  <entry>
    <link href="https://atom.example.org/entries/2"/>
    <updated>2024-02-15T09:00:00+02:00</updated>
    <summary type="html">&lt;img src="https://atom.example.org/summary.png"&gt;</summary>
  </entry>
  <entry>
    <title>Nothing else</title>
  </entry>
</feed>`
